package llm

import "strings"

var specialTokens = []string{
	"<s>", "</s>", "<unk>", "<pad>",
	"<|endoftext|>", "<|im_start|>", "<|im_end|>",
	"<|begin_of_text|>", "<|end_of_text|>", "<|eot_id|>",
	"<|start_header_id|>", "<|end_header_id|>",
	"<|user|>", "<|assistant|>", "<|system|>", "<|end|>",
}

var specialReplacer = func() *strings.Replacer {
	pairs := make([]string, 0, len(specialTokens)*2)
	for _, t := range specialTokens {
		pairs = append(pairs, t, "")
	}
	return strings.NewReplacer(pairs...)
}()

// StripSpecial removes well-known control tokens from decoded text.
func StripSpecial(s string) string {
	return specialReplacer.Replace(s)
}
