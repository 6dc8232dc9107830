package protocol

import "github.com/palemoky/party-room/internal/game/rules"

// 游戏名称
const (
	GameMrWhite  = "mr_white"
	GameWerewolf = "werewolf"
	GameLevel    = "level_game"
)

// RoomSnapshot 房间的公开视图（不包含角色、词语等秘密信息）
type RoomSnapshot struct {
	ID          string   `json:"id"`
	Host        string   `json:"host"`
	Players     []string `json:"players"`
	State       string   `json:"state"`
	DeadPlayers []string `json:"dead_players,omitempty"`
	Voting      bool     `json:"voting"`
}

// UpdateLobbyPayload update_lobby
type UpdateLobbyPayload struct {
	Room RoomSnapshot `json:"room"`
}

// GameStartedPayload game_started
type GameStartedPayload struct {
	Game string `json:"game"`
	Data any    `json:"data"`
}

// GameEndedPayload game_ended
type GameEndedPayload struct {
	Game string `json:"game"`
}

// MrWhiteStartData Mr. White 开局数据：team_a 拿 words[0]，team_b 拿 words[1]，Mr. White 没有词
type MrWhiteStartData struct {
	Words [2]string                    `json:"words"`
	Roles map[string]rules.MrWhiteRole `json:"roles"`
}

// WerewolfStartData 狼人开局数据
type WerewolfStartData struct {
	Roles  map[string]rules.WerewolfRole `json:"roles"`
	Wolves []string                      `json:"wolves"`
	Alive  []string                      `json:"alive"`
}

// StartVotingPayload start_voting
type StartVotingPayload struct {
	Time         int      `json:"time"`
	AlivePlayers []string `json:"alive_players"`
}

// Eliminated 出局玩家及其阵营
type Eliminated struct {
	Name string `json:"name"`
	Team string `json:"team"`
}

// VoteResultPayload vote_result；Winner 为 nil 表示游戏继续
type VoteResultPayload struct {
	Eliminated []Eliminated `json:"eliminated"`
	Winner     *string      `json:"winner"`
	Message    string       `json:"message"`
	Game       string       `json:"game"`
	Alive      []string     `json:"alive"`
}

// WerewolfNightPayload werewolf_night
type WerewolfNightPayload struct {
	Alive []string `json:"alive"`
}

// WerewolfMorningPayload werewolf_morning；Killed 为 nil 表示平安夜
type WerewolfMorningPayload struct {
	Killed *string  `json:"killed"`
	Winner *string  `json:"winner"`
	Alive  []string `json:"alive"`
}

// LevelGameStartedPayload level_game_started
type LevelGameStartedPayload struct {
	Word string `json:"word"`
	Host string `json:"host"`
}

// LevelWordRefreshedPayload level_word_refreshed
type LevelWordRefreshedPayload struct {
	Word string `json:"word"`
}

// StartLevelMatchingPayload start_level_matching
type StartLevelMatchingPayload struct {
	Players          []string `json:"players"`
	AvailableNumbers []int    `json:"available_numbers"`
}

// LevelGameResultPayload level_game_result
type LevelGameResultPayload struct {
	Scores        []rules.Score  `json:"scores"`
	ActualNumbers map[string]int `json:"actual_numbers"`
}

// WinnerPtr 将胜负判定结果转换为可空字符串
func WinnerPtr(w rules.Winner, over bool) *string {
	if !over {
		return nil
	}
	s := string(w)
	return &s
}
