package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ActionType 客户端 → 服务端 动作类型
type ActionType string

const (
	// Mr. White
	ActStartMrWhite ActionType = "start_mr_white"
	ActTriggerVote  ActionType = "trigger_vote"
	ActVote         ActionType = "vote"

	// 狼人
	ActStartWerewolf       ActionType = "start_werewolf"
	ActStartWerewolfNight  ActionType = "start_werewolf_night"
	ActWerewolfNightAction ActionType = "werewolf_night_action"

	// 等级游戏
	ActStartLevelGame     ActionType = "start_level_game"
	ActRefreshLevelWord   ActionType = "refresh_level_word"
	ActSubmitLevelNumber  ActionType = "submit_level_number"
	ActSubmitLevelGuesses ActionType = "submit_level_guesses"

	// 结束当前游戏，回到大厅
	ActEndGame ActionType = "end_game"
)

// EventType 服务端 → 客户端 事件类型
type EventType string

const (
	EvtUpdateLobby        EventType = "update_lobby"
	EvtGameStarted        EventType = "game_started"
	EvtGameEnded          EventType = "game_ended"
	EvtStartVoting        EventType = "start_voting"
	EvtVoteResult         EventType = "vote_result"
	EvtWerewolfNight      EventType = "werewolf_night"
	EvtWerewolfMorning    EventType = "werewolf_morning"
	EvtLevelGameStarted   EventType = "level_game_started"
	EvtLevelWordRefreshed EventType = "level_word_refreshed"
	EvtStartLevelMatching EventType = "start_level_matching"
	EvtLevelGameResult    EventType = "level_game_result"
)

// Action 客户端发来的动作，字段平铺在同一个 JSON 对象中
type Action struct {
	Action   ActionType     `json:"action"`
	Category string         `json:"category,omitempty"`
	Target   string         `json:"target,omitempty"`
	Number   *Int           `json:"number,omitempty"`
	Guesses  map[string]Int `json:"guesses,omitempty"`
}

// Int 接受 JSON 数字或数字字符串
type Int int

func (i *Int) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}

	n, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil {
		// 允许 5.0 这种整数值的浮点写法
		var f float64
		if ferr := json.Unmarshal(data, &f); ferr != nil || f != float64(int(f)) {
			return fmt.Errorf("protocol: not an integer: %s", data)
		}
		n = int(f)
	}
	*i = Int(n)
	return nil
}

// DecodeAction 从 JSON 字节解码动作
func DecodeAction(data []byte) (*Action, error) {
	var act Action
	if err := json.Unmarshal(data, &act); err != nil {
		return nil, err
	}
	if act.Action == "" {
		return nil, fmt.Errorf("protocol: missing action")
	}
	return &act, nil
}

// GuessMap 将猜测转换为普通 int map
func (a *Action) GuessMap() map[string]int {
	out := make(map[string]int, len(a.Guesses))
	for target, n := range a.Guesses {
		out[target] = int(n)
	}
	return out
}
