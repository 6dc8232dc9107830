package rules

import "sort"

// Winner 胜利方
type Winner string

const (
	WinnerVillagers  Winner = "villagers"
	WinnerWerewolves Winner = "werewolves"
	WinnerMrWhite    Winner = "mr_white"
	WinnerTeamA      Winner = "team_a"
	WinnerTeamB      Winner = "team_b"
	WinnerNobody     Winner = "nobody" // 所有人同时出局
)

// WerewolfWinner 每次出局后重新判定胜负，第二个返回值为 false 表示游戏继续
func WerewolfWinner(alive []string, roles map[string]WerewolfRole) (Winner, bool) {
	wolves := 0
	for _, p := range alive {
		if roles[p] == RoleWerewolf {
			wolves++
		}
	}
	villagers := len(alive) - wolves

	switch {
	case wolves == 0:
		return WinnerVillagers, true
	case villagers <= wolves:
		return WinnerWerewolves, true
	default:
		return "", false
	}
}

// MrWhiteWinner 统计存活玩家中仍然存在的角色种类，只剩一种（或没有）时游戏结束。
// 没有角色的玩家（开局后才加入）不参与统计。
func MrWhiteWinner(alive []string, roles map[string]MrWhiteRole) (Winner, bool) {
	remaining := make(map[MrWhiteRole]struct{}, 3)
	for _, p := range alive {
		if role, ok := roles[p]; ok {
			remaining[role] = struct{}{}
		}
	}

	if len(remaining) > 1 {
		return "", false
	}
	for role := range remaining {
		return Winner(role), true
	}
	return WinnerNobody, true
}

// TiedMax 返回得票并列最高的所有候选人，按 order 中的顺序排列；
// 不在 order 中的候选人按名字排序追加在末尾。
func TiedMax(tally map[string]int, order []string) []string {
	best := 0
	for _, n := range tally {
		best = max(best, n)
	}
	if best == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(tally))
	out := make([]string, 0, 2)
	for _, name := range order {
		if tally[name] == best {
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				out = append(out, name)
			}
		}
	}

	var rest []string
	for name, n := range tally {
		if _, ok := seen[name]; !ok && n == best {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// StrictMax 返回唯一的最高票目标；并列或没有票时返回 false
func StrictMax(tally map[string]int) (string, bool) {
	var (
		target string
		best   int
		tied   bool
	)
	for name, n := range tally {
		switch {
		case n > best:
			target, best, tied = name, n, false
		case n == best:
			tied = true
		}
	}
	if best == 0 || tied {
		return "", false
	}
	return target, true
}
