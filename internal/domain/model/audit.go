package model

// AuditContext identifies who performed a mutation and from where. It is
// built explicitly at the transport boundary and passed down, never read
// from ambient request state.
type AuditContext struct {
	ActorID    string
	RemoteAddr string
	UserAgent  string
}
