package lang

var german = map[string]string{
	"pluginname":     "ePortfolio Bewertung",
	"modulename":     "ePortfolio Bewertung",
	"eportfolioname": "Titel",

	"overview:table:filename":         "Dateiname",
	"overview:table:filetimemodified": "Zuletzt geändert",
	"overview:table:sharedby":         "Geteilt von",
	"overview:table:sharestart":       "Geteilt am",
	"overview:table:grading":          "Bewertung",
	"overview:table:actions":          "Aktionen",
	"overview:table:btn:grade":        "Bewerten",
	"overview:table:btn:view":         "Anzeigen",
	"overview:table:btn:delete":       "Neue Freigabe erlauben",
	"overview:table:btn:delete:help": "Mit Klick auf \"Neue Freigabe erlauben\" wird die aktuelle Einreichung entfernt und die bisher gesetzten Bewertungen gelöscht. " +
		"Die Kursteilnehmer/innen erhalten die Möglichkeit, ihre Einreichung erneut durchzuführen, z. B. um eine korrigierte Version bereitzustellen.",
	"overview:empty":      "Aktuell liegen keine ePortfolios vor!",
	"course:notportfolio": "Dieser Kurs ist kein ePortfolio Kurs!",

	"eportfolio:create:activityalreadyavailable": "In diesem Kurs ist bereits eine ePortfolio Aktivität vorhanden. Pro Kurs ist nur eine Aktivität erlaubt!",

	"gradeform:header":       "Benotung & Feedback",
	"gradeform:grade":        "Benotung (in %)",
	"gradeform:grade_help":   "Benotung in Prozent angeben.",
	"gradeform:feedbacktext": "Feedback als Kommentar",
	"gradeform:gradeview":    "Benotung",
	"gradeform:grader":       "Bewertet durch",
	"gradeform:backbtn":      "Zurück zur Übersicht",
	"gradeform:save":         "Änderungen speichern",
	"gradeform:cancel":       "Abbrechen",
	"gradeform:invalid":      "Bitte eine Benotung zwischen 0 und 100 angeben.",

	"view:sharedby":     "Geteilt von",
	"view:timecreated":  "Erstellt",
	"view:timemodified": "Zuletzt geändert",
	"view:open":         "ePortfolio öffnen",
	"view:notgraded":    "Dieses ePortfolio wurde noch nicht bewertet.",

	"grade:insert:success": "Ihre Bewertung wurde erfolgreich gespeichert!",
	"grade:insert:error":   "Beim Speichern der Benotung ist ein Fehler aufgetreten! Bitte versuchen Sie es erneut!",
	"grade:update:success": "Ihre Bewertung wurde erfolgreich aktualisiert!",
	"grade:update:error":   "Beim Aktualisieren der Benotung ist ein Fehler aufgetreten! Bitte versuchen Sie es erneut!",

	"messageprovider:grading": "Mitteilung über neue Bewertungen für ePortfolio",
	"message:emailmessage": "<p>Für Sie wurde eine neue Bewertung hinterlegt.<br>Eingereichtes ePortfolio: {filename}<br>Kurs: {coursename}<br>" +
		"<br>Bewertet durch: {userfrom}<br>URL zur Einreichung: {viewurl}</p>",
	"message:smallmessage": "<p>Für Sie wurde eine neue Bewertung hinterlegt.<br>Eingereichtes ePortfolio: {filename}<br>Kurs: {coursename}<br>" +
		"<br>Bewertet durch: {userfrom}<br>URL zur Einreichung: {viewurl}</p>",
	"message:subject":        "Mitteilung über eine neue Bewertung für Ihr ePortfolio",
	"message:contexturlname": "Bewertung für ePortfolio anzeigen",

	"message:withdrawn:subject": "Ihr ePortfolio kann erneut eingereicht werden",
	"message:withdrawn": "<p>Ihre Einreichung wurde entfernt, damit Sie eine neue Version einreichen können.<br>Eingereichtes ePortfolio: {filename}<br>" +
		"Kurs: {coursename}<br><br>Entfernt durch: {userfrom}<br>URL: {viewurl}</p>",

	"delete:header":  "Neue Freigabe erlauben?",
	"delete:confirm": "Löschen bestätigen",
	"delete:cancel":  "Abbrechen",
	"delete:checkconfirm": "<b>Möchten Sie für die ausgewählte Datei wirklich eine neue Freigabe erlauben?</b><br><br>" +
		"Dateiname: {filename}<br>Eingereicht von: {username}<br><br><b>Die eingereichte Datei und bestehende Bewertungen werden gelöscht!</b>",
	"delete:success": "Datei wurde erfolgreich gelöscht!",
	"delete:error":   "Beim Löschen der Datei ist ein Fehler aufgetreten! Bitte versuchen Sie es erneut!",
	"delete:expired": "Die Bestätigung ist abgelaufen. Bitte erneut bestätigen.",

	"event:eportfolio:deleted:name": "ePortfolio aus Bewertung gelöscht",
	"event:eportfolio:deleted":      "The user with the id '{userid}' deleted ePortfolio {filename} (itemid: '{itemid}')",

	"error:notfound":     "Das angeforderte ePortfolio wurde nicht gefunden.",
	"error:nopermission": "Sie haben keine Berechtigung für diese Aktion.",
	"error:invalidinput": "Die Anfrage enthält ungültige Daten.",
	"error:unexpected":   "Ein unerwarteter Fehler ist aufgetreten. Bitte versuchen Sie es erneut!",
}
