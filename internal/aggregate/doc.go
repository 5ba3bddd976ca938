// Package aggregate turns stored usage days into chart-ready daily and weekly
// series. Every function here is pure and safe for concurrent use.
package aggregate
