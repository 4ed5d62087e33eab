package model

// CafeTable represents a bookable table in the café as stored in
// the `cafe_tables` table.  Tables are created and edited through
// the admin console and referenced by reservations.
//
// Fields:
//  ID     – primary key identifier.
//  Player – seating capacity of the table.
//  Cost   – rental cost per hour.
type CafeTable struct {
	ID     uint64 // cafe_tables.id
	Player uint32 // cafe_tables.player
	Cost   uint32 // cafe_tables.cost
}
