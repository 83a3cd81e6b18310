package board

import (
	"SequenceGame/internal/game/card"
)

// Color 队伍颜色；None 表示空格
type Color string

const (
	None  Color = ""
	Red   Color = "RED"
	Blue  Color = "BLUE"
	Green Color = "GREEN"
)

// TeamColors 按队伍序号排列
var TeamColors = []Color{Red, Blue, Green}

// SequenceLength 连成一条 sequence 所需长度
const SequenceLength = 5

// Position 棋盘坐标
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Space 棋盘格：绑定的牌不可变（四角无牌），棋子与 sequence 标记可变
type Space struct {
	card           card.Card
	wild           bool
	chip           Color
	partOfSequence bool
}

// Card 返回格上的牌；万能格 ok=false
func (s Space) Card() (card.Card, bool) { return s.card, !s.wild }
func (s Space) IsWild() bool            { return s.wild }
func (s Space) Chip() Color             { return s.chip }
func (s Space) Occupied() bool          { return s.chip != None }
func (s Space) PartOfSequence() bool    { return s.partOfSequence }

// 四个轴向：横、竖、两条对角线
var directions = [4]Position{
	{Row: 0, Col: 1},
	{Row: 1, Col: 0},
	{Row: 1, Col: 1},
	{Row: 1, Col: -1},
}

// Board 固定网格，构造后不再改变尺寸。
// completed 与 chipsPlaced 随落子/移除增量维护，从不全量重算。
type Board struct {
	spaces      [][]Space
	completed   map[Color]int
	chipsPlaced map[Color]int
}

// New 使用 DefaultLayout
func New() *Board {
	return NewFromLayout(DefaultLayout)
}

// NewFromLayout 按布局表建盘，无法解析的记号（包括 FREE）成为万能格
func NewFromLayout(layout [][]string) *Board {
	spaces := make([][]Space, len(layout))
	for r, row := range layout {
		spaces[r] = make([]Space, len(row))
		for c, token := range row {
			cd, ok := card.FromLayoutToken(token)
			spaces[r][c] = Space{card: cd, wild: !ok}
		}
	}
	return &Board{
		spaces:      spaces,
		completed:   make(map[Color]int),
		chipsPlaced: make(map[Color]int),
	}
}

func (b *Board) Rows() int { return len(b.spaces) }

func (b *Board) Cols(row int) int {
	if row < 0 || row >= len(b.spaces) {
		return 0
	}
	return len(b.spaces[row])
}

func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < len(b.spaces) && col >= 0 && col < len(b.spaces[row])
}

// Space 返回格子的只读副本；越界时返回零值与 false
func (b *Board) Space(row, col int) (Space, bool) {
	if !b.InBounds(row, col) {
		return Space{}, false
	}
	return b.spaces[row][col], true
}

// SetChip 放置或移除（color=None）棋子。万能格上为空操作。
// 先更新 chipsPlaced，再以 (row,col) 为中心检查 sequence。
func (b *Board) SetChip(row, col int, color Color) {
	if !b.InBounds(row, col) {
		return
	}
	s := &b.spaces[row][col]
	if s.wild {
		return
	}
	if s.chip != None {
		b.chipsPlaced[s.chip]--
	}
	s.chip = color
	if color != None {
		b.chipsPlaced[color]++
	}
	b.checkSequences(row, col)
}

// checkSequences 沿四个轴向收集包含 (row,col) 的连续匹配格。
// 长度 >= SequenceLength 时整段标记 partOfSequence（永不撤销）；
// 长度恰为 SequenceLength 的整数倍时该颜色 completed +1，每个 (方向, 连段) 各算一次。
func (b *Board) checkSequences(row, col int) {
	color := b.spaces[row][col].chip
	if color == None {
		// 移除棋子后没有可测试的颜色，已有标记与计数保持不变
		return
	}
	for _, d := range directions {
		run := []Position{{Row: row, Col: col}}
		run = b.collect(run, row, col, d.Row, d.Col, color)
		run = b.collect(run, row, col, -d.Row, -d.Col, color)
		if len(run) < SequenceLength {
			continue
		}
		for _, p := range run {
			b.spaces[p.Row][p.Col].partOfSequence = true
		}
		if len(run)%SequenceLength == 0 {
			b.completed[color]++
		}
	}
}

func (b *Board) collect(run []Position, row, col, dr, dc int, color Color) []Position {
	for r, c := row+dr, col+dc; b.InBounds(r, c) && b.matches(r, c, color); r, c = r+dr, c+dc {
		run = append(run, Position{Row: r, Col: c})
	}
	return run
}

// 万能格匹配任意颜色，不论是否被占
func (b *Board) matches(row, col int, color Color) bool {
	s := b.spaces[row][col]
	return s.wild || s.chip == color
}

// IsDeadCard 该牌在棋盘上的所有位置都已被占。棋盘上没有的牌（J）不算死牌。
func (b *Board) IsDeadCard(c card.Card) bool {
	found := false
	for _, row := range b.spaces {
		for _, s := range row {
			if s.wild || s.card != c {
				continue
			}
			if s.chip == None {
				return false
			}
			found = true
		}
	}
	return found
}

// SpacesForCard 该牌所在的全部坐标（行优先）
func (b *Board) SpacesForCard(c card.Card) []Position {
	var out []Position
	for r, row := range b.spaces {
		for col, s := range row {
			if !s.wild && s.card == c {
				out = append(out, Position{Row: r, Col: col})
			}
		}
	}
	return out
}

func (b *Board) CompletedSequences(color Color) int { return b.completed[color] }
func (b *Board) ChipsPlaced(color Color) int        { return b.chipsPlaced[color] }

// AllCompletedSequences 副本
func (b *Board) AllCompletedSequences() map[Color]int { return copyCounts(b.completed) }

// AllChipsPlaced 副本
func (b *Board) AllChipsPlaced() map[Color]int { return copyCounts(b.chipsPlaced) }

func copyCounts(m map[Color]int) map[Color]int {
	out := make(map[Color]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SpaceState 持久化用的格子状态
type SpaceState struct {
	Row            int   `json:"row"`
	Col            int   `json:"col"`
	Chip           Color `json:"chip,omitempty"`
	PartOfSequence bool  `json:"partOfSequence,omitempty"`
}

// State 棋盘完整可变状态（计数器原样保存，恢复时不重算）
type State struct {
	Spaces             []SpaceState  `json:"spaces"`
	CompletedSequences map[Color]int `json:"completedSequences"`
	ChipsPlaced        map[Color]int `json:"chipsPlaced"`
}

// State 只导出有棋子或有标记的格子
func (b *Board) State() State {
	st := State{
		CompletedSequences: b.AllCompletedSequences(),
		ChipsPlaced:        b.AllChipsPlaced(),
	}
	for r, row := range b.spaces {
		for c, s := range row {
			if s.chip == None && !s.partOfSequence {
				continue
			}
			st.Spaces = append(st.Spaces, SpaceState{Row: r, Col: c, Chip: s.chip, PartOfSequence: s.partOfSequence})
		}
	}
	return st
}

// Restore 按快照直接写入状态，不触发 sequence 检查。
// 越界格子、万能格上的棋子被忽略，返回忽略数。万能格可以带 sequence 标记。
func (b *Board) Restore(st State) int {
	skipped := 0
	for _, ss := range st.Spaces {
		if !b.InBounds(ss.Row, ss.Col) {
			skipped++
			continue
		}
		s := &b.spaces[ss.Row][ss.Col]
		s.partOfSequence = ss.PartOfSequence
		if s.wild {
			if ss.Chip != None {
				skipped++
			}
			continue
		}
		s.chip = ss.Chip
	}
	b.completed = copyCounts(st.CompletedSequences)
	b.chipsPlaced = copyCounts(st.ChipsPlaced)
	return skipped
}
