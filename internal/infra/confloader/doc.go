// Package confloader provides configuration loading for keyden.
//
// It uses koanf for flexible loading from multiple sources with
// priority Env > File > Default, and fsnotify to watch the
// configuration file for runtime changes (log level reload).
//
// Environment variables use the format KEYDEN_SECTION_KEY, e.g.
// KEYDEN_SERVER_LISTEN_ADDR maps to server.listen.addr. A double
// underscore keeps a literal underscore within a key:
// KEYDEN_LIMITS_MAX__BULK__LEN maps to limits.max_bulk_len.
package confloader
