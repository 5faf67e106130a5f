package lang

var english = map[string]string{
	"pluginname":     "ePortfolio Grading",
	"modulename":     "ePortfolio Grading",
	"eportfolioname": "Title",

	"overview:table:filename":         "Filename",
	"overview:table:filetimemodified": "Last modified",
	"overview:table:sharedby":         "Shared by",
	"overview:table:sharestart":       "Shared on",
	"overview:table:grading":          "Grade",
	"overview:table:actions":          "Actions",
	"overview:table:btn:grade":        "Add grading",
	"overview:table:btn:view":         "View grading",
	"overview:table:btn:delete":       "Allow new submission",
	"overview:table:btn:delete:help": "Clicking on \"Allow new submission\" will remove the current submission and delete the existing grade. " +
		"Course participants will be given the option to resubmit their submission, e.g. to provide a corrected version.",
	"overview:empty":      "Currently there are no ePortfolios available!",
	"course:notportfolio": "This course is not an ePortfolio course!",

	"eportfolio:create:activityalreadyavailable": "There is already an ePortfolio activity in this course. Only one activity per course is allowed!",

	"gradeform:header":       "Grade & Feedback",
	"gradeform:grade":        "Grade (in %)",
	"gradeform:grade_help":   "Specify grading as a percentage.",
	"gradeform:feedbacktext": "Feedback as comment",
	"gradeform:gradeview":    "Grade",
	"gradeform:grader":       "Grading by",
	"gradeform:backbtn":      "Back to overview",
	"gradeform:save":         "Save changes",
	"gradeform:cancel":       "Cancel",
	"gradeform:invalid":      "Please enter a grade between 0 and 100.",

	"view:sharedby":     "Shared by",
	"view:timecreated":  "Created",
	"view:timemodified": "Last modified",
	"view:open":         "Open ePortfolio",
	"view:notgraded":    "This ePortfolio has not been graded yet.",

	"grade:insert:success": "Your grading has been successfully saved!",
	"grade:insert:error":   "An error occurred while saving the grading! Please try again!",
	"grade:update:success": "Your grading has been successfully updated!",
	"grade:update:error":   "An error occurred while updating the grading! Please try again!",

	"messageprovider:grading": "Notification about new assessments for ePortfolio",
	"message:emailmessage": "<p>A new grade has been added for you.<br>ePortfolio: {filename}<br>Course: {coursename}<br>" +
		"<br>Grading by: {userfrom}<br>URL: {viewurl}</p>",
	"message:smallmessage": "<p>A new grade has been added for you.<br>ePortfolio: {filename}<br>Course: {coursename}<br>" +
		"<br>Grading by: {userfrom}<br>URL: {viewurl}</p>",
	"message:subject":        "Notification about new assessments for ePortfolio",
	"message:contexturlname": "View grade for ePortfolio",

	"message:withdrawn:subject": "Your ePortfolio can be submitted again",
	"message:withdrawn": "<p>Your submission has been removed so that you can submit a new version.<br>ePortfolio: {filename}<br>" +
		"Course: {coursename}<br><br>Removed by: {userfrom}<br>URL: {viewurl}</p>",

	"delete:header":  "Allow new submission?",
	"delete:confirm": "Confirm",
	"delete:cancel":  "Cancel",
	"delete:checkconfirm": "<b>Do you really want to allow a new submission for this file?</b><br><br>" +
		"Filename: {filename}<br>Shared by: {username}<br><br><b>The submitted file and any existing grades will also be deleted!</b>",
	"delete:success": "The selected file was deleted successfully!",
	"delete:error":   "There was an error while deleting the file! Please try again!",
	"delete:expired": "The confirmation has expired. Please confirm again.",

	"event:eportfolio:deleted:name": "ePortfolio deleted",
	"event:eportfolio:deleted":      "The user with the id '{userid}' deleted ePortfolio {filename} (itemid: '{itemid}')",

	"error:notfound":     "The requested ePortfolio could not be found.",
	"error:nopermission": "You do not have permission to perform this action.",
	"error:invalidinput": "The request contains invalid data.",
	"error:unexpected":   "An unexpected error occurred. Please try again!",
}
