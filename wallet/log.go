// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"github.com/btcsuite/btclog"

	"github.com/DCL2019/cash2/core"
	"github.com/DCL2019/cash2/keystore"
	"github.com/DCL2019/cash2/ledger"
	"github.com/DCL2019/cash2/txbuild"
)

// log is a logger that is initialized with no output filters. This
// means the package will not perform any logging by default until the
// caller requests it.
var log btclog.Logger

func init() {
	DisableLog()
}

// DisableLog disables all library log output. Logging output is
// disabled by default until UseLogger is called.
func DisableLog() {
	UseLogger(btclog.Disabled)
}

// UseLogger uses a specified Logger to output package logging info.
// It propagates the logger to every collaborating
// package the way wallet/log.go wires waddrmgr/wtxmgr/migration in the
// teacher.
func UseLogger(logger btclog.Logger) {
	log = logger

	core.UseLogger(logger)
	keystore.UseLogger(logger)
	ledger.UseLogger(logger)
	txbuild.UseLogger(logger)
}
