package core

// Rule thresholds. Every comparison is strict: a value equal to its
// threshold never fires the rule.
const (
	MassRecipientThreshold          = 100
	ExfiltrationSizeThreshold       = 150000
	ExfiltrationAttachmentThreshold = 1
	HighAttachmentThreshold         = 10
)

// Classify evaluates the rules in order and returns the first match
func Classify(f Features) Verdict {
	switch {
	case f.NumRecipients > MassRecipientThreshold:
		return Verdict{Anomaly: 1, Status: StatusMassRecipient}
	case f.Size > ExfiltrationSizeThreshold && f.Attachments > ExfiltrationAttachmentThreshold:
		return Verdict{Anomaly: 1, Status: StatusLargeExfiltration}
	case f.Attachments > HighAttachmentThreshold:
		return Verdict{Anomaly: 1, Status: StatusHighAttachmentCount}
	default:
		return Verdict{Anomaly: 0, Status: StatusNormal}
	}
}
