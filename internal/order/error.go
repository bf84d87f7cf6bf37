package order

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrAlreadyProcessed  = errors.New("order already processed")
	ErrRefAlreadySet     = errors.New("transaction reference already set")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotPayable        = errors.New("order is not payable")
)
