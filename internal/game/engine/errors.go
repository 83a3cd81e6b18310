package engine

import (
	"errors"

	"SequenceGame/internal/game/dealer"
)

// MoveError 单步走子的规则违规。闭合枚举，用 errors.Is 或直接比较。
type MoveError int

const (
	GameNotInProgress MoveError = iota + 1
	NotYourTurn
	CardNotInHand
	PlayerNotFound
	CannotPlayOnWildcard
	PositionOccupied
	CannotRemoveSequence
	CannotRemoveEmptyChip
	CannotRemoveOwnChip
	DeadCardDiscardAlreadyUsed
	InvalidBoardPosition
)

var moveErrorText = map[MoveError]string{
	GameNotInProgress:          "game is not in progress",
	NotYourTurn:                "it is not your turn",
	CardNotInHand:              "card is not in your hand",
	PlayerNotFound:             "player not found in game",
	CannotPlayOnWildcard:       "cannot play on a wildcard space",
	PositionOccupied:           "position is already occupied",
	CannotRemoveSequence:       "cannot remove a chip that is part of a sequence",
	CannotRemoveEmptyChip:      "there is no chip to remove",
	CannotRemoveOwnChip:        "cannot remove your own chip",
	DeadCardDiscardAlreadyUsed: "only one dead card discard is allowed per turn",
	InvalidBoardPosition:       "position is outside the board",
}

func (e MoveError) Error() string {
	if s, ok := moveErrorText[e]; ok {
		return s
	}
	return "unknown move error"
}

// Code 稳定的机器可读名字
func (e MoveError) Code() string {
	switch e {
	case GameNotInProgress:
		return "GAME_NOT_IN_PROGRESS"
	case NotYourTurn:
		return "NOT_YOUR_TURN"
	case CardNotInHand:
		return "CARD_NOT_IN_HAND"
	case PlayerNotFound:
		return "PLAYER_NOT_FOUND"
	case CannotPlayOnWildcard:
		return "CANNOT_PLAY_ON_WILDCARD"
	case PositionOccupied:
		return "POSITION_OCCUPIED"
	case CannotRemoveSequence:
		return "CANNOT_REMOVE_SEQUENCE"
	case CannotRemoveEmptyChip:
		return "CANNOT_REMOVE_EMPTY_CHIP"
	case CannotRemoveOwnChip:
		return "CANNOT_REMOVE_OWN_CHIP"
	case DeadCardDiscardAlreadyUsed:
		return "DEAD_CARD_DISCARD_ALREADY_USED"
	case InvalidBoardPosition:
		return "INVALID_BOARD_POSITION"
	}
	return "UNKNOWN"
}

// IsMoveError 提取规则违规
func IsMoveError(err error) (MoveError, bool) {
	var me MoveError
	if errors.As(err, &me) {
		return me, true
	}
	return 0, false
}

// 配置/开局错误
var (
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrGameNotFull        = errors.New("not enough players to start the game")
	ErrGameFull           = errors.New("game is already full")
	ErrInvalidPlayerCount = dealer.ErrInvalidPlayerCount

	// ErrInconsistentSnapshot 持久化数据自相矛盾，属于数据完整性故障
	ErrInconsistentSnapshot = errors.New("inconsistent game snapshot")
)
