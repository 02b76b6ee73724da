package readyset

import "github.com/pkg/errors"

var ErrInvalidID = errors.New("invalid device or token id")
var ErrTokensExhausted = errors.New("no free block tokens")
var ErrTokenNotAcquired = errors.New("block token not acquired")
var ErrDuplicateDevice = errors.New("duplicate device id")
var ErrInvalidConfig = errors.New("invalid configuration")
var ErrPollerUnsupported = errors.New("net poller is not supported on this platform")

func invalidNetDevice(id DeviceID) error {
	return errors.Wrapf(ErrInvalidID, "net device %d out of range [0,%d)", id, MaxNetDevices)
}

func invalidBlockDevice(id DeviceID) error {
	return errors.Wrapf(ErrInvalidID, "block device %d out of range [0,%d)", id, MaxBlockDevices)
}

func invalidToken(dev DeviceID, tok TokenID) error {
	return errors.Wrapf(ErrInvalidID, "token %d on block device %d out of range [0,%d)", tok, dev, MaxBlockTokens)
}
