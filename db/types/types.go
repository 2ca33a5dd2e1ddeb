package types

// Migration is a single embedded SQL migration. SQL holds the down part first and the up part after
// the "-- +migrate Up" marker
type Migration struct {
	ID     string
	SQL    string
	Prefix string
}
