package rules

import (
	"math/rand/v2"

	"github.com/palemoky/party-room/internal/apperrors"
)

// MrWhiteRole Mr. White 游戏中的角色
type MrWhiteRole string

const (
	RoleMrWhite MrWhiteRole = "mr_white"
	RoleTeamA   MrWhiteRole = "team_a"
	RoleTeamB   MrWhiteRole = "team_b"
)

// WerewolfRole 狼人游戏中的角色
type WerewolfRole string

const (
	RoleWerewolf WerewolfRole = "werewolf"
	RoleVillager WerewolfRole = "villager"
)

// ErrNoPlayers 分配角色时没有玩家
var ErrNoPlayers = apperrors.ErrNoPlayers

// ceilDiv 向上取整除法
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// MrWhiteCounts 返回 n 名玩家时各角色人数
func MrWhiteCounts(n int) (white, teamA, teamB int) {
	white = ceilDiv(n, 6)
	rem := n - white
	teamA = ceilDiv(rem, 2)
	teamB = rem - teamA
	return white, teamA, teamB
}

// WolfCount 返回 n 名玩家时狼人数量
func WolfCount(n int) int {
	return ceilDiv(n, 6)
}

// AssignMrWhiteRoles 按人数生成角色标签，打乱后按顺序分配给玩家
func AssignMrWhiteRoles(players []string, rng *rand.Rand) (map[string]MrWhiteRole, error) {
	n := len(players)
	if n == 0 {
		return nil, ErrNoPlayers
	}

	white, teamA, teamB := MrWhiteCounts(n)
	labels := make([]MrWhiteRole, 0, n)
	labels = appendN(labels, RoleMrWhite, white)
	labels = appendN(labels, RoleTeamA, teamA)
	labels = appendN(labels, RoleTeamB, teamB)
	shuffle(rng, labels)

	roles := make(map[string]MrWhiteRole, n)
	for i, p := range players {
		roles[p] = labels[i]
	}
	return roles, nil
}

// AssignWerewolfRoles 分配狼人/村民，同时返回狼人列表（按玩家顺序）
func AssignWerewolfRoles(players []string, rng *rand.Rand) (map[string]WerewolfRole, []string, error) {
	n := len(players)
	if n == 0 {
		return nil, nil, ErrNoPlayers
	}

	wolves := WolfCount(n)
	labels := make([]WerewolfRole, 0, n)
	labels = appendN(labels, RoleWerewolf, wolves)
	labels = appendN(labels, RoleVillager, n-wolves)
	shuffle(rng, labels)

	roles := make(map[string]WerewolfRole, n)
	wolfList := make([]string, 0, wolves)
	for i, p := range players {
		roles[p] = labels[i]
		if labels[i] == RoleWerewolf {
			wolfList = append(wolfList, p)
		}
	}
	return roles, wolfList, nil
}

func appendN[T any](s []T, v T, n int) []T {
	for range n {
		s = append(s, v)
	}
	return s
}

// shuffle rng 为 nil 时使用全局随机源
func shuffle[T any](rng *rand.Rand, s []T) {
	swap := func(i, j int) { s[i], s[j] = s[j], s[i] }
	if rng == nil {
		rand.Shuffle(len(s), swap)
		return
	}
	rng.Shuffle(len(s), swap)
}
