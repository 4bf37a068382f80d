package types

// AvailabilityStatus tags the direction of an availability flip.
type AvailabilityStatus string

const (
	BecameAvailable   AvailabilityStatus = "became_available"
	BecameUnavailable AvailabilityStatus = "became_unavailable"
)

// PriceChange describes a price difference between two snapshots. Percent is
// rounded to two decimals for presentation and is nil when the old price was
// zero (no meaningful baseline). RawPercent retains full precision for
// threshold comparisons and is likewise nil when the old price was zero.
type PriceChange struct {
	Old           float64  `json:"old"`
	New           float64  `json:"new"`
	Percent       *float64 `json:"change_percent,omitempty"`
	AbsoluteDelta float64  `json:"change_amount"`
	RawPercent    *float64 `json:"-"`
}

// AvailabilityChange describes an availability flip between two snapshots.
type AvailabilityChange struct {
	Old    bool               `json:"old"`
	New    bool               `json:"new"`
	Status AvailabilityStatus `json:"status"`
}

// TitleChange describes a title difference between two snapshots.
type TitleChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// ChangeSet is the structured diff between two snapshots of the same item.
// Each field is present only when that dimension changed. NoPriorData marks
// the first-observation case, where no change can be reported.
type ChangeSet struct {
	NoPriorData        bool                `json:"no_prior_data,omitempty"`
	Price              *PriceChange        `json:"price,omitempty"`
	Availability       *AvailabilityChange `json:"availability,omitempty"`
	Title              *TitleChange        `json:"title,omitempty"`
	DescriptionChanged bool                `json:"description_changed,omitempty"`
}

// HasChanges reports whether any dimension changed.
func (c ChangeSet) HasChanges() bool {
	return c.Price != nil || c.Availability != nil || c.Title != nil || c.DescriptionChanged
}
