package room

import "github.com/palemoky/party-room/internal/protocol"

// State 房间状态
type State string

const (
	StateLobby             State = "lobby"
	StateMrWhitePlaying    State = "mr_white_playing"
	StateWerewolfNight     State = "werewolf_night"
	StateWerewolfDay       State = "werewolf_day"
	StateLevelGameInput    State = "level_game_input"
	StateLevelGameMatching State = "level_game_matching"
)

// InGame 是否处于某个游戏中
func (s State) InGame() bool {
	return s != StateLobby && s != ""
}

// Game 状态所属的游戏名，大厅返回空串
func (s State) Game() string {
	switch s {
	case StateMrWhitePlaying:
		return protocol.GameMrWhite
	case StateWerewolfNight, StateWerewolfDay:
		return protocol.GameWerewolf
	case StateLevelGameInput, StateLevelGameMatching:
		return protocol.GameLevel
	default:
		return ""
	}
}
