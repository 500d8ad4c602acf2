// Lightweight text classifiers used by moderation rules: advertising/solicitation phrases, monetary amounts, and emoji or character-repetition spam.
//
// All classifiers are pure functions of their input and immutable configuration, and are safe for concurrent use. Input text is normalized with keyword.Normalize before matching, so configured phrases may be written in any case.
package signals
