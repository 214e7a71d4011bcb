package seed

import "lexiq-backend/internal/model"

func mc(level model.EnglishLevel, category model.QuestionCategory, prompt, correct string, wrong ...string) item {
	choices := []choice{{text: correct, correct: true}}
	for _, w := range wrong {
		choices = append(choices, choice{text: w})
	}
	return item{prompt: prompt, level: level, category: category, choices: choices}
}

func open(level model.EnglishLevel, category model.QuestionCategory, prompt, answer string) item {
	return item{prompt: prompt, level: level, category: category, answer: answer}
}

func match(level model.EnglishLevel, category model.QuestionCategory, prompt string, pairs ...pair) item {
	return item{prompt: prompt, level: level, category: category, pairs: pairs}
}

const (
	grammar    = model.CategoryGrammar
	vocabulary = model.CategoryVocabulary
)

var catalog = []item{
	// A1
	mc(model.LevelA1, vocabulary, "Which word is a fruit?", "Apple", "Chair", "Table"),
	mc(model.LevelA1, grammar, "Complete: 'I ___ a student.'", "am", "is", "are"),
	mc(model.LevelA1, grammar, "Choose the article: '___ cat is sleeping.'", "The", "An", "Some"),
	mc(model.LevelA1, vocabulary, "What is the opposite of 'hot'?", "Cold", "Warm", "Boiling"),
	open(model.LevelA1, grammar, "Write the plural of 'child'.", "children"),
	match(model.LevelA1, vocabulary, "Match the animals to the sounds they make.",
		pair{label: "dog", placeholder: "woof", key: "dog"},
		pair{label: "cat", placeholder: "meow", key: "cat"},
		pair{label: "cow", placeholder: "moo", key: "cow"},
	),

	// A2
	mc(model.LevelA2, grammar, "Choose the preposition: 'He is good ___ math.'", "at", "in", "on"),
	mc(model.LevelA2, vocabulary, "Which word means 'quick'?", "Fast", "Slow", "Lazy"),
	mc(model.LevelA2, grammar, "Complete: 'They ___ dinner right now.'", "are having", "have", "has had"),
	mc(model.LevelA2, grammar, "Complete: 'There isn't ___ milk left.'", "any", "some", "many"),
	open(model.LevelA2, grammar, "Write the past simple of 'buy'.", "bought"),
	match(model.LevelA2, grammar, "Match each verb to its past simple form.",
		pair{label: "went", placeholder: "go", key: "go"},
		pair{label: "ate", placeholder: "eat", key: "eat"},
		pair{label: "saw", placeholder: "see", key: "see"},
	),

	// B1
	mc(model.LevelB1, grammar, "Complete: 'If it rains, we ___ at home.'", "will stay", "would stay", "stayed"),
	mc(model.LevelB1, vocabulary, "Which word is closest to 'reliable'?", "Dependable", "Careless", "Unusual"),
	mc(model.LevelB1, grammar, "Complete: 'I have lived here ___ 2015.'", "since", "for", "from"),
	mc(model.LevelB1, grammar, "Complete: 'She asked me where I ___.'", "lived", "do live", "am living"),
	open(model.LevelB1, vocabulary, "Write the noun form of 'succeed'.", "success"),
	match(model.LevelB1, vocabulary, "Match each phrasal verb to its meaning.",
		pair{label: "give up", placeholder: "stop trying", key: "quit"},
		pair{label: "look after", placeholder: "take care of", key: "care"},
		pair{label: "find out", placeholder: "discover", key: "discover"},
	),

	// B2
	mc(model.LevelB2, grammar, "Complete: 'By the time we arrived, the film ___.'", "had started", "has started", "starts"),
	mc(model.LevelB2, vocabulary, "Which word means 'to make something less severe'?", "Alleviate", "Aggravate", "Allocate"),
	mc(model.LevelB2, grammar, "Complete: 'I wish I ___ more time yesterday.'", "had had", "have", "would have"),
	mc(model.LevelB2, grammar, "Complete: 'The report ___ by Friday.'", "must be finished", "must finish", "must finishing"),
	open(model.LevelB2, grammar, "Rewrite in one word: 'not possible to avoid' = ___", "inevitable"),
	match(model.LevelB2, grammar, "Match each sentence to its conditional type.",
		pair{label: "If you heat ice, it melts.", placeholder: "zero", key: "zero"},
		pair{label: "If I won, I would travel.", placeholder: "second", key: "second"},
		pair{label: "If she had called, I would have come.", placeholder: "third", key: "third"},
	),

	// C1
	mc(model.LevelC1, grammar, "Complete: 'Not only ___ late, but he also forgot the tickets.'", "was he", "he was", "he is"),
	mc(model.LevelC1, vocabulary, "Which word means 'showing great attention to detail'?", "Meticulous", "Mediocre", "Impulsive"),
	mc(model.LevelC1, grammar, "Complete: 'Had I known, I ___ differently.'", "would have acted", "would act", "had acted"),
	mc(model.LevelC1, vocabulary, "Choose the best collocation: '___ a compromise'", "reach", "make up", "do"),
	open(model.LevelC1, vocabulary, "Write the adjective meaning 'lasting a very short time' (starts with 'e').", "ephemeral"),
	match(model.LevelC1, vocabulary, "Match each idiom to its meaning.",
		pair{label: "bite the bullet", placeholder: "face something unpleasant", key: "endure"},
		pair{label: "hit the nail on the head", placeholder: "be exactly right", key: "exact"},
		pair{label: "let the cat out of the bag", placeholder: "reveal a secret", key: "reveal"},
	),

	// C2
	mc(model.LevelC2, vocabulary, "Which word means 'deliberately ambiguous'?", "Equivocal", "Explicit", "Emphatic"),
	mc(model.LevelC2, grammar, "Complete: 'Little ___ that the plan would fail.'", "did they suspect", "they suspected", "they did suspect"),
	mc(model.LevelC2, vocabulary, "Which word means 'to make something seem less important'?", "Downplay", "Outweigh", "Overstate"),
	mc(model.LevelC2, grammar, "Complete: 'It is essential that he ___ informed.'", "be", "is", "will be"),
	open(model.LevelC2, vocabulary, "Write the word meaning 'a person who dislikes humankind'.", "misanthrope"),
	match(model.LevelC2, vocabulary, "Match each word to its register.",
		pair{label: "commence", placeholder: "formal", key: "formal"},
		pair{label: "kick off", placeholder: "informal", key: "informal"},
		pair{label: "heretofore", placeholder: "archaic", key: "archaic"},
	),
}
