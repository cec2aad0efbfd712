//go:build !darwin && !windows && !(linux && !android)

package notifier

func platformChain(opts Options) []sender {
	return []sender{newBeeep(opts)}
}
