package structure

import "strconv"

// InfoLabel is the placeholder number given to descriptions and other non-question items.
const InfoLabel = "i"

// DisplayNumbers returns the label of every slot in position order.
// Real questions take the running counter, which advances by the question's length;
// a custom display number replaces the label but still advances the counter.
func (s *Structure) DisplayNumbers() []string {
	labels := make([]string, len(s.slots))
	next := 1
	for i, sl := range s.slots {
		info := s.info(sl)
		if !info.IsReal() {
			labels[i] = InfoLabel
			continue
		}
		if sl.DisplayNumber != "" {
			labels[i] = sl.DisplayNumber
		} else {
			labels[i] = strconv.Itoa(next)
		}
		next += info.Length
	}
	return labels
}
