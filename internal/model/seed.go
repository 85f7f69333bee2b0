package model

// SeedFile is the JSON layout of a seed import file.
type SeedFile struct {
	Professions []ProfessionImport `json:"professions"`
}

// ProfessionImport is used for loading a profession and its questions from JSON.
type ProfessionImport struct {
	Slug          string           `json:"slug"`
	NameEN        string           `json:"name_en"`
	NameRU        string           `json:"name_ru"`
	DescriptionEN string           `json:"description_en"`
	DescriptionRU string           `json:"description_ru"`
	Icon          string           `json:"icon"`
	Questions     []QuestionImport `json:"questions"`
}

// QuestionImport is used for loading questions from JSON.
type QuestionImport struct {
	QuestionEN    string     `json:"question_en"`
	QuestionRU    string     `json:"question_ru"`
	OptionAEN     string     `json:"option_a_en"`
	OptionARU     string     `json:"option_a_ru"`
	OptionBEN     string     `json:"option_b_en"`
	OptionBRU     string     `json:"option_b_ru"`
	OptionCEN     string     `json:"option_c_en"`
	OptionCRU     string     `json:"option_c_ru"`
	OptionDEN     string     `json:"option_d_en"`
	OptionDRU     string     `json:"option_d_ru"`
	CorrectAnswer Choice     `json:"correct_answer"`
	ExplanationEN string     `json:"explanation_en"`
	ExplanationRU string     `json:"explanation_ru"`
	Difficulty    Difficulty `json:"difficulty"`
}

// Question converts the import into a Question for professionID.
func (qi QuestionImport) Question(professionID int64) Question {
	return Question{
		ProfessionID:  professionID,
		QuestionEN:    qi.QuestionEN,
		QuestionRU:    qi.QuestionRU,
		OptionAEN:     qi.OptionAEN,
		OptionARU:     qi.OptionARU,
		OptionBEN:     qi.OptionBEN,
		OptionBRU:     qi.OptionBRU,
		OptionCEN:     qi.OptionCEN,
		OptionCRU:     qi.OptionCRU,
		OptionDEN:     qi.OptionDEN,
		OptionDRU:     qi.OptionDRU,
		CorrectAnswer: qi.CorrectAnswer,
		ExplanationEN: qi.ExplanationEN,
		ExplanationRU: qi.ExplanationRU,
		Difficulty:    qi.Difficulty,
	}
}

// Profession converts the import into a Profession.
func (pi ProfessionImport) Profession() Profession {
	return Profession{
		Slug:          pi.Slug,
		NameEN:        pi.NameEN,
		NameRU:        pi.NameRU,
		DescriptionEN: pi.DescriptionEN,
		DescriptionRU: pi.DescriptionRU,
		Icon:          pi.Icon,
	}
}
