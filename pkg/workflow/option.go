package workflow

// Option is one selectable entry in a menu step. Label is what the user sees,
// Id and Name identify the underlying record.
type Option struct {
	Label string `json:"label"`
	Id    int64  `json:"id"`
	Name  string `json:"name"`
}

// OptionSet keeps menu entries in presentation order. Order matters: the
// resolver's positional tier matches "2" to the second entry shown.
type OptionSet []Option

func (s OptionSet) Labels() []string {
	labels := make([]string, len(s))
	for i, o := range s {
		labels[i] = o.Label
	}
	return labels
}

func (s OptionSet) IsEmpty() bool {
	return len(s) == 0
}
