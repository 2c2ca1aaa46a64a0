package errprocess

import (
	"errors"

	"short_clip_service/pkg/logger"
)

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}

// Wrap 記錄一次後回傳原始錯誤，保留可 errors.Is 比對的 sentinel
func Wrap(errMsg string, err error) error {
	logger.Log.Errorf(errMsg, err)
	return err
}
