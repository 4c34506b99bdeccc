package models

// AdData is the listing payload loaded from the ad data file at the start of
// each run. It is read once per run and never mutated.
type AdData struct {
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Postcode         string            `json:"postcode"`
	Price            string            `json:"price,omitempty"`
	ContactName      string            `json:"contact_name,omitempty"`
	PhoneNumber      string            `json:"phone_number,omitempty"`
	CategoryURL      string            `json:"category_url,omitempty"`
	AdditionalFields map[string]string `json:"additional_fields,omitempty"`
	Dropdowns        map[string]string `json:"dropdowns,omitempty"`
	ImagePaths       []string          `json:"image_paths,omitempty"`
}

// MissingRequiredFields returns the names of required fields that are empty,
// in a stable order. A non-empty result is a warning, not an error: the site
// form rejects such ads on its own, and that outcome is more informative in
// the logs than refusing to run.
func (a *AdData) MissingRequiredFields() []string {
	var missing []string
	if a.Title == "" {
		missing = append(missing, "title")
	}
	if a.Description == "" {
		missing = append(missing, "description")
	}
	if a.Postcode == "" {
		missing = append(missing, "postcode")
	}
	return missing
}

// Step identifies where in the relist cycle a run failed.
type Step string

const (
	StepNone     Step = "none"
	StepDataLoad Step = "data_load"
	StepSession  Step = "session"
	StepLogin    Step = "login"
	StepDelete   Step = "delete"
	StepCreate   Step = "create"
)

// RunOutcome is the result of one complete relist cycle. It is consumed by
// the scheduler for logging only and is never persisted.
type RunOutcome struct {
	RunID            string
	Succeeded        bool
	FailedStep       Step
	DeletionFailed   bool
	CreationAttempts int
}
