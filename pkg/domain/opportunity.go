package domain

// Requirement is one line item of an Opportunity. Order within
// Opportunity.Requirements is significant and preserved throughout the
// matching pipeline.
type Requirement struct {
	Text     string   `json:"text"`
	Tags     []string `json:"tags"`
	Required bool     `json:"required"`
}

// Opportunity is a job-like target with an ordered list of requirements.
type Opportunity struct {
	OpportunityId OpportunityId `json:"opportunity_id"`
	Company       string        `json:"company"`
	RoleTitle     string        `json:"role_title"`
	Source        string        `json:"source"`
	Requirements  []Requirement `json:"requirements"`
}

// CanonicalText is the deterministic string used for hashing and embedding:
// role_title, company, and each requirement's text joined by single spaces.
func (o Opportunity) CanonicalText() string {
	text := o.RoleTitle + " " + o.Company
	for _, r := range o.Requirements {
		text += " " + r.Text
	}
	return text
}
