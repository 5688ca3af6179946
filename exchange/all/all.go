// Package all registers every supported exchange.
package all

import (
	_ "github.com/rustyeddy/charti/exchange/binance"
	_ "github.com/rustyeddy/charti/exchange/bybit"
	_ "github.com/rustyeddy/charti/exchange/coinbase"
	_ "github.com/rustyeddy/charti/exchange/okx"
)
