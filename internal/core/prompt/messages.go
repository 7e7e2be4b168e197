package prompt

import "github.com/markdave123-py/csrdesk/internal/core/language"

type msgID int

const (
	msgRole msgID = iota
	msgStudy
	msgSection
	msgFormatHeader
	msgFormatStructured
	msgFormatContextOnly
	msgFormatGaps
	msgFormatLanguage
	msgPhase
	msgIndication
	msgSponsor
	msgContextHeader
	msgProtocol
	msgSAP
	msgTLF
	msgCSRPrev
	msgCurrentText
	msgUserInstructions
	msgTaskHeader
	msgTaskDefault
)

type key struct {
	id   msgID
	lang string
}

// catalog holds the full parallel wording per language. Entries taking
// arguments are fmt format strings.
var catalog = map[key]string{
	{msgRole, language.RU}: "Ты — эксперт по написанию разделов Clinical Study Report (CSR) для клинических исследований.",
	{msgRole, language.EN}: "You are an expert in writing Clinical Study Report (CSR) sections for clinical trials.",

	{msgStudy, language.RU}: "Ты работаешь над исследованием: %s (код: %s).",
	{msgStudy, language.EN}: "You are working on the study: %s (code: %s).",

	{msgSection, language.RU}: "Тебе нужно сгенерировать или улучшить текст для раздела: %s (код: %s).",
	{msgSection, language.EN}: "You need to generate or improve the text for the section: %s (code: %s).",

	{msgFormatHeader, language.RU}: "Формат ответа:",
	{msgFormatHeader, language.EN}: "Response format:",

	{msgFormatStructured, language.RU}: "- Текст должен быть структурированным, профессиональным и соответствовать стандартам CSR.",
	{msgFormatStructured, language.EN}: "- The text must be structured, professional and compliant with CSR standards.",

	{msgFormatContextOnly, language.RU}: "- Используй только информацию из предоставленного контекста.",
	{msgFormatContextOnly, language.EN}: "- Use only information from the provided context.",

	{msgFormatGaps, language.RU}: "- Если в контексте недостаточно информации, укажи это в соответствующих местах.",
	{msgFormatGaps, language.EN}: "- If the context lacks information, state this in the relevant places.",

	{msgFormatLanguage, language.RU}: "- Пиши на русском языке, используя медицинскую терминологию.",
	{msgFormatLanguage, language.EN}: "- Write in English, using medical terminology.",

	{msgPhase, language.RU}: "- Фаза исследования: %s.",
	{msgPhase, language.EN}: "- Study phase: %s.",

	{msgIndication, language.RU}: "- Показание к применению: %s.",
	{msgIndication, language.EN}: "- Indication: %s.",

	{msgSponsor, language.RU}: "- Спонсор: %s.",
	{msgSponsor, language.EN}: "- Sponsor: %s.",

	{msgContextHeader, language.RU}: "=== КОНТЕКСТ ИЗ ИСХОДНЫХ ДОКУМЕНТОВ ===",
	{msgContextHeader, language.EN}: "=== CONTEXT FROM SOURCE DOCUMENTS ===",

	{msgProtocol, language.RU}: "--- ПРОТОКОЛ ИССЛЕДОВАНИЯ ---",
	{msgProtocol, language.EN}: "--- STUDY PROTOCOL ---",

	{msgSAP, language.RU}: "--- SAP (Statistical Analysis Plan) ---",
	{msgSAP, language.EN}: "--- SAP (Statistical Analysis Plan) ---",

	{msgTLF, language.RU}: "--- TLF (Table, Listing, Figure) - Сводные данные ---",
	{msgTLF, language.EN}: "--- TLF (Table, Listing, Figure) - Summary data ---",

	{msgCSRPrev, language.RU}: "--- ПРЕДЫДУЩИЙ CSR ---",
	{msgCSRPrev, language.EN}: "--- PREVIOUS CSR ---",

	{msgCurrentText, language.RU}: "=== ТЕКУЩИЙ ТЕКСТ РАЗДЕЛА ===",
	{msgCurrentText, language.EN}: "=== CURRENT SECTION TEXT ===",

	{msgUserInstructions, language.RU}: "=== ДОПОЛНИТЕЛЬНЫЕ ИНСТРУКЦИИ ===",
	{msgUserInstructions, language.EN}: "=== ADDITIONAL INSTRUCTIONS ===",

	{msgTaskHeader, language.RU}: "=== ЗАДАНИЕ ===",
	{msgTaskHeader, language.EN}: "=== TASK ===",

	{msgTaskDefault, language.RU}: "Сгенерируй текст раздела CSR на основе приведённого контекста.",
	{msgTaskDefault, language.EN}: "Generate the CSR section text based on the provided context.",
}

func text(id msgID, lang string) string {
	if s, ok := catalog[key{id, lang}]; ok {
		return s
	}
	return catalog[key{id, language.Default}]
}
