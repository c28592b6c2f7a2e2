package output

import "github.com/colthorp/rickmorty-cli-go/internal/core"

var translations = map[string]map[string]string{
	core.LanguageEnglish: {
		"characters":          "Characters",
		"id":                  "ID",
		"name":                "Name: ",
		"status":              "Status: ",
		"last_known_location": "Last known location: ",
		"first_seen_in":       "First seen in: ",
		"avatar":              "Avatar: ",
		"language":            "Language: ",
		"total":               "Total characters: ",
		"offline_notice":      "Offline: showing cached data",
		"fetching_avatar":     "Fetching avatar for character %d…",
		"saved_avatar":        "Saved %s (%d bytes)",
		"Alive":               "Alive",
		"Dead":                "Dead",
		"unknown":             "unknown",
	},
	core.LanguageRussian: {
		"characters":          "Персонажи",
		"id":                  "ID",
		"name":                "Имя: ",
		"status":              "Статус: ",
		"last_known_location": "Последнее известное местоположение: ",
		"first_seen_in":       "Впервые появился в: ",
		"avatar":              "Аватар: ",
		"language":            "Язык: ",
		"total":               "Всего персонажей: ",
		"offline_notice":      "Нет сети: показаны сохранённые данные",
		"fetching_avatar":     "Загрузка аватара персонажа %d…",
		"saved_avatar":        "Сохранено: %s (%d байт)",
		"Alive":               "Жив",
		"Dead":                "Мёртв",
		"unknown":             "неизвестно",
	},
}

// T returns the text for key in lang. Unknown languages use English; unknown
// keys are returned as **key** so gaps stay visible.
func T(lang, key string) string {
	table, ok := translations[lang]
	if !ok {
		table = translations[core.LanguageEnglish]
	}
	if s, ok := table[key]; ok {
		return s
	}
	return "**" + key + "**"
}
