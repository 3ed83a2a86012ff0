package voice

const (
	msgIntro          = `Voice flashcard session started. I will read each flashcard and ask you questions. Say "next" to continue or "repeat" to hear again.`
	msgHelp           = `Available commands: next, previous, repeat, stop, help, answer. Say "answer" to respond to the current question.`
	msgMovingNext     = "Moving to next flashcard"
	msgMovingPrevious = "Moving to previous flashcard"
	msgFirstCard      = `This is the first flashcard. Say "next" to continue.`
	msgCorrect        = "Correct! Well done."
	msgIncorrect      = "Not quite. The correct answer is %s. Press continue when you are ready to move on."
	msgQuestion       = "Question: %s. Please answer with one word."
	msgReadCard       = "%s. The answer is %s."
	msgSessionEnded   = "Session ended. You reviewed %d flashcards in %d minutes."
	msgNotHeard       = "I didn't catch that. Please try again."
	msgUnsupported    = "Voice features are not supported on this device."
)
