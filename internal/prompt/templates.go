package prompt

import "hvacnews/internal/domain"

// Template arguments: main = (url, name, start, end), period = (start, end).
// Russian sources get plain-string title/summary; every other language
// asks for a per-language object so the editorial pipeline always has a
// Russian rendering alongside the source language.
var templates = map[domain.Language]templateSet{
	domain.LangRU: {
		main: `Найди на сайте %s (%s) все новости за период с %s по %s включительно.

Используй веб-поиск для поиска новостей. Ищи все статьи, публикации, пресс-релизы, новости, опубликованные на сайте за указанный период. Для каждой найденной новости найди заголовок, текст новости (1-2 абзаца) и ссылку на источник.`,
		period: "Период поиска: с %s по %s включительно.",
		jsonFormat: `Верни ответ СТРОГО в формате JSON (только JSON, без дополнительного текста):

{
  "news": [
    {
      "title": "Заголовок новости на русском",
      "summary": "Текст новости на русском языке (1-2 абзаца). Пиши новость напрямую, как журналист, от третьего лица.",
      "source_url": "https://example.com/news/article"
    }
  ]
}

Если новостей нет, верни: {"news": []}

Верни ТОЛЬКО JSON, без дополнительных комментариев или объяснений.`,
	},
	domain.LangEN: {
		main: `Find all news on the website %s (%s) for the period from %s to %s inclusive.

Use web search to find news. Look for all articles, publications, press releases, news published on the website for the specified period. For each found news item, find the title, news text (1-2 paragraphs) and source link.`,
		period: "Search period: from %s to %s inclusive.",
		jsonFormat: `Return the answer STRICTLY in JSON format (JSON only, without additional text):

{
  "news": [
    {
      "title": {
        "en": "News title in English",
        "ru": "Заголовок новости на русском"
      },
      "summary": {
        "en": "News text in English (1-2 paragraphs). Write the news directly, as a journalist, in third person.",
        "ru": "Текст новости на русском языке (1-2 абзаца). Пиши новость напрямую, как журналист, от третьего лица."
      },
      "source_url": "https://example.com/news/article"
    }
  ]
}

If no news found, return: {"news": []}

Return ONLY JSON, without additional comments or explanations.`,
	},
	domain.LangES: {
		main: `Encuentra todas las noticias en el sitio web %s (%s) para el período del %s al %s inclusive.

Usa la búsqueda web para encontrar noticias. Busca todos los artículos, publicaciones, comunicados de prensa, noticias publicadas en el sitio web para el período especificado. Para cada noticia encontrada, encuentra el título, texto de la noticia (1-2 párrafos) y enlace a la fuente.`,
		period: "Período de búsqueda: del %s al %s inclusive.",
		jsonFormat: `Devuelve la respuesta ESTRICTAMENTE en formato JSON (solo JSON, sin texto adicional):

{
  "news": [
    {
      "title": {
        "es": "Título de la noticia en español",
        "ru": "Заголовок новости на русском"
      },
      "summary": {
        "es": "Texto de la noticia en español (1-2 párrafos). Escribe la noticia directamente, como periodista, en tercera persona.",
        "ru": "Текст новости на русском языке (1-2 абзаца). Пиши новость напрямую, как журналист, от третьего лица."
      },
      "source_url": "https://example.com/news/article"
    }
  ]
}

Si no se encuentran noticias, devuelve: {"news": []}

Devuelve SOLO JSON, sin comentarios adicionales o explicaciones.`,
	},
	domain.LangDE: {
		main: `Finde alle Nachrichten auf der Website %s (%s) für den Zeitraum vom %s bis %s einschließlich.

Verwende die Websuche, um Nachrichten zu finden. Suche nach allen Artikeln, Veröffentlichungen, Pressemitteilungen, Nachrichten, die auf der Website für den angegebenen Zeitraum veröffentlicht wurden. Für jede gefundene Nachricht finde den Titel, den Nachrichtentext (1-2 Absätze) und den Quelllink.`,
		period: "Suchzeitraum: vom %s bis %s einschließlich.",
		jsonFormat: `Gib die Antwort STRENG im JSON-Format zurück (nur JSON, ohne zusätzlichen Text):

{
  "news": [
    {
      "title": {
        "de": "Nachrichtentitel auf Deutsch",
        "ru": "Заголовок новости на русском"
      },
      "summary": {
        "de": "Nachrichtentext auf Deutsch (1-2 Absätze). Schreibe die Nachricht direkt, als Journalist, in der dritten Person.",
        "ru": "Текст новости на русском языке (1-2 абзаца). Пиши новость напрямую, как журналист, от третьего лица."
      },
      "source_url": "https://example.com/news/article"
    }
  ]
}

Wenn keine Nachrichten gefunden wurden, gib zurück: {"news": []}

Gib NUR JSON zurück, ohne zusätzliche Kommentare oder Erklärungen.`,
	},
	domain.LangPT: {
		main: `Encontre todas as notícias no site %s (%s) para o período de %s a %s inclusive.

Use a pesquisa na web para encontrar notícias. Procure por todos os artigos, publicações, comunicados de imprensa, notícias publicadas no site para o período especificado. Para cada notícia encontrada, encontre o título, texto da notícia (1-2 parágrafos) e link da fonte.`,
		period: "Período de pesquisa: de %s a %s inclusive.",
		jsonFormat: `Retorne a resposta ESTRITAMENTE em formato JSON (apenas JSON, sem texto adicional):

{
  "news": [
    {
      "title": {
        "pt": "Título da notícia em português",
        "ru": "Заголовок новости на русском"
      },
      "summary": {
        "pt": "Texto da notícia em português (1-2 parágrafos). Escreva a notícia diretamente, como jornalista, na terceira pessoa.",
        "ru": "Текст новости на русском языке (1-2 абзаца). Пиши новость напрямую, как журналист, от третьего лица."
      },
      "source_url": "https://example.com/news/article"
    }
  ]
}

Se nenhuma notícia for encontrada, retorne: {"news": []}

Retorne APENAS JSON, sem comentários adicionais ou explicações.`,
	},
}
