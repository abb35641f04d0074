package auth

import (
	"fmt"
	"strings"
)

const (
	// maskedIssueMessage is returned for unknown or inactive emails. It is
	// deliberately indistinguishable from a legitimate outcome.
	maskedIssueMessage = "If the user with this email has already purchased a course, it will be reflected accordingly."
	sentIssueMessage   = "Verification code sent successfully"

	otpSubject     = "Your sign-in code"
	welcomeSubject = "Welcome to the course library"
)

func otpBody(code string) string {
	return fmt.Sprintf("Your sign-in code is %s.\r\n\r\nIt expires in 10 minutes. If you didn't request it, you can ignore this email.", code)
}

func welcomeBody(name, baseURL string) string {
	first := "there"
	if name != "" {
		first = strings.SplitN(name, " ", 2)[0]
	}
	return fmt.Sprintf("Hey %s,\r\n\r\nYour access is live. Head to %s/courses to start watching.", first, baseURL)
}
