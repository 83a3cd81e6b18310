package board

// DefaultLayout 标准 10x10 棋盘。四角 FREE 为万能格，其余每张非 J 牌恰好出现两次。
var DefaultLayout = [][]string{
	{"FREE", "TS", "QS", "KS", "AS", "2D", "3D", "4D", "5D", "FREE"},
	{"9S", "TH", "9H", "8H", "7H", "6H", "5H", "4H", "3H", "6D"},
	{"8S", "QH", "7D", "8D", "9D", "TD", "QD", "KD", "2H", "7D"},
	{"7S", "KH", "6D", "2C", "AH", "KH", "QH", "AD", "2S", "8D"},
	{"6S", "AH", "5D", "3C", "4H", "3H", "TH", "AC", "3S", "9D"},
	{"5S", "2C", "4D", "4C", "5H", "2H", "9H", "KC", "4S", "TD"},
	{"4S", "3C", "3D", "5C", "6H", "7H", "8H", "QC", "5S", "QD"},
	{"3S", "4C", "2D", "6C", "7C", "8C", "9C", "TC", "6S", "KD"},
	{"2S", "5C", "AS", "KS", "QS", "TS", "9S", "8S", "7S", "AD"},
	{"FREE", "AC", "KC", "QC", "TC", "9C", "8C", "7C", "6C", "FREE"},
}
