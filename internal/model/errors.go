package model

import "errors"

var (
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrInsufficientQuantity = errors.New("quantity exceeds the available stock")
	ErrInvalidActionType    = errors.New("action type is not allowed for this item")
	ErrInvalidItemKind      = errors.New("item kind must be offer or request")
	ErrInvalidPrice         = errors.New("price must be a positive number")
)
