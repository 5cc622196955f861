package protocol

// Scope identifies which state machine a message header addresses.
type Scope uint8

const (
	ScopeGlobal Scope = 0
	ScopeRoom   Scope = 1
	ScopeGame   Scope = 2
)

// NoSlot marks a header that does not address a particular seat (global
// scope, or a message sent before a slot has been assigned).
const NoSlot uint8 = 7

// Opcode is the second header byte. Values are taken from the opcode table
// in the original resource.h so the wire format matches the client exactly.
type Opcode uint8

// Contextless opcodes (valid regardless of scope).
const (
	OpDisconnect        Opcode = 1
	OpConnect           Opcode = 2
	OpNext              Opcode = 8
	OpRequestStateReport Opcode = 9
	OpRequestScore      Opcode = 30
	OpScoreList         Opcode = 31
	OpReportScore       Opcode = 32
	OpHighScoreSubmit   Opcode = 33
	OpHighScoreAchieved Opcode = 34
	OpNoHighScore       Opcode = 35
)

// Score list result codes, carried as the payload's first byte.
const (
	ScoreListFailure uint8 = 1
	ScoreListSuccess uint8 = 2
)

// Room-scope opcodes.
const (
	OpJoin            Opcode = 2
	OpLeave           Opcode = 3
	OpReady           Opcode = 4
	OpNotReady        Opcode = 5
	OpEnterGameState  Opcode = 6
	OpStartGame       Opcode = 7
	OpMessage         Opcode = 8
	OpAssignID        Opcode = 9
	OpPlaying         Opcode = 10
	OpIdle            Opcode = 11
	OpAppearance      Opcode = 12
	OpFrame           Opcode = 13
	OpGrid            Opcode = 14
)

// Game-scope opcodes.
const (
	OpInvalidAct  Opcode = 2
	OpGameOver    Opcode = 3
	OpLockdown    Opcode = 4
	OpBoard       Opcode = 5
	OpRequestFix  Opcode = 6
	OpGameEnd     Opcode = 7
	OpTetrad      Opcode = 8
)
