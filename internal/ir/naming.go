package ir

import "strings"

// DefaultPrefix derives the environment prefix for a crate:
// "esp-hal-embassy" becomes "ESP_HAL_EMBASSY_CONFIG".
func DefaultPrefix(crate string) string {
	return screamingSnake(crate) + "_CONFIG"
}

// EnvName returns the environment variable naming option under prefix:
// ("ESP_HAL_EMBASSY_CONFIG", "timer-queue") -> "ESP_HAL_EMBASSY_CONFIG_TIMER_QUEUE".
func EnvName(prefix, option string) string {
	if prefix == "" {
		return screamingSnake(option)
	}
	return prefix + "_" + screamingSnake(option)
}

func screamingSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
