package apperrors

// 错误码
const (
	CodeUnknown          = 1000
	CodeUnknownAction    = 1001
	CodeNameTaken        = 2001
	CodeRoomNotFound     = 2002
	CodeNotInRoom        = 2003
	CodeWrongState       = 3001
	CodeNoGameData       = 3002
	CodeIneligibleTarget = 3003
	CodeVoteInProgress   = 3004
	CodeNoVote           = 3005
	CodeInvalidPayload   = 3006
	CodeNotAlive         = 3007
	CodeNoPlayers        = 3008
)

// GameError 房间/编排层共享的错误
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// Is 按错误码比较，允许 fmt.Errorf("%w") 包装后仍能 errors.Is 匹配
func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	return ok && t.Code == e.Code
}

// 预定义错误
var (
	ErrUnknownAction    = &GameError{Code: CodeUnknownAction, Message: "unknown action"}
	ErrNameTaken        = &GameError{Code: CodeNameTaken, Message: "player name already taken in this room"}
	ErrRoomNotFound     = &GameError{Code: CodeRoomNotFound, Message: "room not found"}
	ErrNotInRoom        = &GameError{Code: CodeNotInRoom, Message: "player is not in this room"}
	ErrWrongState       = &GameError{Code: CodeWrongState, Message: "action not valid in current state"}
	ErrNoGameData       = &GameError{Code: CodeNoGameData, Message: "no game data for current state"}
	ErrIneligibleTarget = &GameError{Code: CodeIneligibleTarget, Message: "target not eligible"}
	ErrVoteInProgress   = &GameError{Code: CodeVoteInProgress, Message: "a vote is already in progress"}
	ErrNoVote           = &GameError{Code: CodeNoVote, Message: "no vote in progress"}
	ErrInvalidPayload   = &GameError{Code: CodeInvalidPayload, Message: "invalid payload"}
	ErrNotAlive         = &GameError{Code: CodeNotAlive, Message: "player is not alive"}
	ErrNoPlayers        = &GameError{Code: CodeNoPlayers, Message: "at least one player is required"}
)
