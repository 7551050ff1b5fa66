package validation

// Severity is a rule's verdict on one artifact.
type Severity string

const (
	SeverityPass  Severity = "Pass"
	SeverityWarn  Severity = "Warn"
	SeverityFail  Severity = "Fail"
	SeverityBlock Severity = "Block"
)

// severityRank orders severities for deterministic finding sort: Block >
// Fail > Warn > Pass.
var severityRank = map[Severity]int{
	SeverityBlock: 0,
	SeverityFail:  1,
	SeverityWarn:  2,
	SeverityPass:  3,
}

// Finding is one rule's verdict on one artifact.
type Finding struct {
	RuleId        string   `json:"rule_id"`
	Severity      Severity `json:"severity"`
	Message       string   `json:"message"`
	EvidenceRefs  []string `json:"evidence_refs"`

	insertionOrder int
}

// Status is the overall disposition of a ValidationReport.
type Status string

const (
	StatusAccepted    Status = "Accepted"
	StatusNeedsReview Status = "NeedsReview"
	StatusRejected    Status = "Rejected"
	StatusBlocked     Status = "Blocked"
	StatusOverridden  Status = "Overridden"
)

// ValidationReport is the outcome of running a Constitution against one
// ArtifactEnvelope. ReportId is always "report-" + ArtifactId.
type ValidationReport struct {
	ReportId             string    `json:"report_id"`
	TraceId              string    `json:"trace_id"`
	ArtifactId           string    `json:"artifact_id"`
	ConstitutionId       string    `json:"constitution_id"`
	ConstitutionVersion  string    `json:"constitution_version"`
	Status               Status    `json:"status"`
	Findings             []Finding `json:"findings"`
}

// ConstitutionOverrideRequest is an operator-authorized escalation of a
// single Block finding, bound to artifact identity by a hash of ArtifactId.
type ConstitutionOverrideRequest struct {
	RuleId        string `json:"rule_id"`
	OperatorId    string `json:"operator_id"`
	Reason        string `json:"reason"`
	PayloadHash   string `json:"payload_hash"`
	BindingHashAlg string `json:"binding_hash_alg"`
}
