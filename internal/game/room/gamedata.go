package room

import (
	"slices"

	"github.com/palemoky/party-room/internal/game/rules"
)

// GameData 当前游戏的私有数据，只有三种实现，由房间状态决定是哪一种
type GameData interface {
	gameData()
}

// MrWhiteData Mr. White 游戏数据
type MrWhiteData struct {
	Words [2]string
	Roles map[string]rules.MrWhiteRole
}

// WerewolfData 狼人游戏数据
type WerewolfData struct {
	Roles        map[string]rules.WerewolfRole
	Wolves       []string
	Alive        []string
	NightActions map[string]struct{}
	WolfVotes    map[string]int
}

// LevelGameData 等级游戏数据。NumberOrder/GuessOrder 记录提交顺序，用于同分排序
type LevelGameData struct {
	Word        string
	Numbers     map[string]int
	NumberOrder []string
	Guesses     map[string]map[string]int
	GuessOrder  []string
	Scored      bool
}

func (*MrWhiteData) gameData()   {}
func (*WerewolfData) gameData()  {}
func (*LevelGameData) gameData() {}

// NewWerewolfData 开局时所有人都存活
func NewWerewolfData(players []string, roles map[string]rules.WerewolfRole, wolves []string) *WerewolfData {
	return &WerewolfData{
		Roles:        roles,
		Wolves:       wolves,
		Alive:        slices.Clone(players),
		NightActions: make(map[string]struct{}),
		WolfVotes:    make(map[string]int),
	}
}

// NewLevelGameData 创建等级游戏数据
func NewLevelGameData(word string) *LevelGameData {
	return &LevelGameData{
		Word:    word,
		Numbers: make(map[string]int),
		Guesses: make(map[string]map[string]int),
	}
}

// IsAlive 玩家是否存活
func (d *WerewolfData) IsAlive(name string) bool {
	return slices.Contains(d.Alive, name)
}

// IsWolf 玩家是否是狼人
func (d *WerewolfData) IsWolf(name string) bool {
	return d.Roles[name] == rules.RoleWerewolf
}

// Kill 从存活列表移除，返回是否确实移除
func (d *WerewolfData) Kill(name string) bool {
	i := slices.Index(d.Alive, name)
	if i < 0 {
		return false
	}
	d.Alive = slices.Delete(d.Alive, i, i+1)
	delete(d.NightActions, name)
	delete(d.WolfVotes, name)
	return true
}

// ResetNight 清空夜间行动与狼人票
func (d *WerewolfData) ResetNight() {
	clear(d.NightActions)
	clear(d.WolfVotes)
}

// NightComplete 每个存活玩家都已行动
func (d *WerewolfData) NightComplete() bool {
	for _, name := range d.Alive {
		if _, ok := d.NightActions[name]; !ok {
			return false
		}
	}
	return true
}

// SubmitNumber 记录玩家的秘密数字，重复提交覆盖旧值但保留原顺序
func (d *LevelGameData) SubmitNumber(name string, n int) {
	if _, ok := d.Numbers[name]; !ok {
		d.NumberOrder = append(d.NumberOrder, name)
	}
	d.Numbers[name] = n
}

// SubmitGuesses 记录玩家的猜测
func (d *LevelGameData) SubmitGuesses(name string, guesses map[string]int) {
	if _, ok := d.Guesses[name]; !ok {
		d.GuessOrder = append(d.GuessOrder, name)
	}
	d.Guesses[name] = guesses
}

// Purge 清除离开玩家的所有提交
func (d *LevelGameData) Purge(name string) {
	delete(d.Numbers, name)
	delete(d.Guesses, name)
	d.NumberOrder = slices.DeleteFunc(d.NumberOrder, func(s string) bool { return s == name })
	d.GuessOrder = slices.DeleteFunc(d.GuessOrder, func(s string) bool { return s == name })
}
