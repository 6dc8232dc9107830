package rules

import "sort"

// Score 等级游戏中一名玩家的得分
type Score struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// ScoreLevelGame 计算每位玩家猜对的数量。
// order 是提交顺序，得分相同时保持该顺序；
// 猜测的目标没有提交过数字（例如中途离开）时不计分。
func ScoreLevelGame(order []string, guesses map[string]map[string]int, numbers map[string]int) []Score {
	scores := make([]Score, 0, len(order))
	for _, name := range order {
		g, ok := guesses[name]
		if !ok {
			continue
		}

		correct := 0
		for target, guessed := range g {
			if actual, known := numbers[target]; known && actual == guessed {
				correct++
			}
		}
		scores = append(scores, Score{Name: name, Score: correct})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}

// SortedNumbers 返回所有已提交数字的升序列表
func SortedNumbers(numbers map[string]int) []int {
	out := make([]int, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
