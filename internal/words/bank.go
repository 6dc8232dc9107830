package words

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
)

// 内置词库，未配置 API key 时使用
var (
	builtinPairs = map[string][][2]string{
		"ผลไม้": {
			{"มะม่วง", "มะละกอ"},
			{"ส้ม", "มะนาว"},
			{"แตงโม", "แคนตาลูป"},
		},
		"สถานที่": {
			{"ทะเล", "น้ำตก"},
			{"โรงเรียน", "มหาวิทยาลัย"},
			{"ตลาด", "ห้างสรรพสินค้า"},
		},
		"สัตว์": {
			{"แมว", "เสือ"},
			{"ม้า", "ลา"},
			{"จระเข้", "ตะกวด"},
		},
		"อาหาร": {
			{"ผัดไทย", "ผัดซีอิ๊ว"},
			{"ต้มยำ", "ต้มข่า"},
			{"ข้าวมันไก่", "ข้าวหมูแดง"},
		},
	}

	builtinTraits = []string{
		"สวย", "สายปาร์ตี้", "ขี้เซา", "สายเปย์", "ขี้อ้อน",
		"สายกิน", "ขี้บ่น", "ใจดี", "สายเที่ยว", "ขี้ลืม",
	}
)

// Bank 内置词库生成器，从不失败
type Bank struct {
	pairs  map[string][][2]string
	traits []string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewBank 创建内置词库，rng 为 nil 时使用全局随机源
func NewBank(rng *rand.Rand) *Bank {
	return &Bank{pairs: builtinPairs, traits: builtinTraits, rng: rng}
}

// Categories 内置分类
func (b *Bank) Categories() []string {
	out := make([]string, 0, len(b.pairs))
	for c := range b.pairs {
		out = append(out, c)
	}
	return out
}

// WordPair 优先从同名分类中抽取，分类未知时从全部词对中抽取
func (b *Bank) WordPair(_ context.Context, category string) (string, string, error) {
	candidates := b.pairs[strings.TrimSpace(category)]
	if len(candidates) == 0 {
		for _, pairs := range b.pairs {
			candidates = append(candidates, pairs...)
		}
	}

	p := candidates[b.intN(len(candidates))]
	return p[0], p[1], nil
}

func (b *Bank) TraitWord(_ context.Context) (string, error) {
	return b.traits[b.intN(len(b.traits))], nil
}

func (b *Bank) intN(n int) int {
	if b.rng == nil {
		return rand.IntN(n)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rng.IntN(n)
}
