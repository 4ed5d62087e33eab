package model

// Game represents one lendable board game title as stored in the
// `games` table.  Remain counts physical copies currently on the
// shelf; it is mutated only inside borrow/return transactions so
// that remain plus open loans always equals the total stock.
//
// Fields:
//  ID     – primary key identifier.
//  Name   – display name of the game.
//  Player – recommended player count; borrowing consumes this many
//           seats from the reservation's remaining capacity.
//  Remain – copies currently available (never negative).
//  Type   – category such as "strategy" or "party".
type Game struct {
	ID     uint64 // games.id
	Name   string // games.name
	Player uint32 // games.player
	Remain uint32 // games.remain
	Type   string // games.type
}
