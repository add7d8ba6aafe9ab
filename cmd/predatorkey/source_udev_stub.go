//go:build !cgo

package main

import "errors"

func newUdevSource() (deviceSource, error) {
	return nil, errors.New("udev enumerator requires a cgo build with libudev")
}
