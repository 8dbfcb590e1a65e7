package enums

// AuditEventType names a schedule mutation published to the audit topic.
type AuditEventType string

const (
	AuditEventRowCreated  AuditEventType = "row.created"
	AuditEventRowUpdated  AuditEventType = "row.updated"
	AuditEventRowDeleted  AuditEventType = "row.deleted"
	AuditEventUserCreated AuditEventType = "user.created"
)

var validAuditEventTypes = []AuditEventType{
	AuditEventRowCreated,
	AuditEventRowUpdated,
	AuditEventRowDeleted,
	AuditEventUserCreated,
}

// String implements fmt.Stringer.
func (a AuditEventType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditEventType.
func (a AuditEventType) IsValid() bool {
	for _, candidate := range validAuditEventTypes {
		if candidate == a {
			return true
		}
	}
	return false
}
