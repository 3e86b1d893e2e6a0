package domain

import "errors"

var (
	// хранилище недоступно после всех ретраев - пользователю говорим "попробуйте позже"
	ErrStorageUnavailable = errors.New("хранилище недоступно")

	ErrAccountNotFound = errors.New("аккаунт не найден")

	// реферер указал сам себя
	ErrSelfReferral = errors.New("нельзя указать себя как пригласившего")
)
