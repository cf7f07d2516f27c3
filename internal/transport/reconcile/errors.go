package reconcile

import "errors"

var ErrNoOrders = errors.New("no orders to reconcile")
