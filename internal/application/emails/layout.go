package emails

import (
	"fmt"
	"time"
)

const (
	themePrimary = "#2F6FED"
	themeBgBody  = "#F3F4F6"
)

// EmailLayout wraps content in the shared transactional email frame.
func EmailLayout(contentHTML string) string {
	year := time.Now().Year()
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Causeway</title>
  <style>
    body { margin: 0; padding: 0; background-color: %s; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; }
    .content-body p { margin: 0 0 24px 0; font-size: 16px; line-height: 1.6; color: #374151; }
    .content-body h1 { color: #111827; font-size: 24px; margin: 0 0 20px 0; font-weight: 700; }
    .cw-button { display: inline-block; background-color: %s; color: #ffffff !important; padding: 12px 32px; text-decoration: none !important; border-radius: 6px; font-weight: 600; font-size: 15px; }
  </style>
</head>
<body style="background-color: %s;">
  <table role="presentation" width="100%%" border="0" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 40px 0;">
        <table role="presentation" width="600" border="0" cellspacing="0" cellpadding="0" style="background-color: #FFFFFF; border-radius: 8px;">
          <tr>
            <td align="center" style="padding: 40px 0 24px 0; font-size: 22px; font-weight: 700; color: %s;">Causeway</td>
          </tr>
          <tr>
            <td class="content-body" style="padding: 0 48px 30px 48px;">%s</td>
          </tr>
          <tr>
            <td align="center" style="padding: 0 48px 40px 48px; font-size: 13px; color: #6B7280;">
              Need assistance? Contact <a href="mailto:support@causeway.fund" style="color: %s;">support@causeway.fund</a><br>
              &copy; %d Causeway. All rights reserved.
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, themeBgBody, themePrimary, themeBgBody, themePrimary, contentHTML, themePrimary, year)
}

func invitationContent(inviteLink, orgName string) string {
	return fmt.Sprintf(`<h1>You're invited to volunteer</h1>
<p><strong>%s</strong> has invited you to join their fundraising team on Causeway.</p>
<p>Click the button below to accept the invitation and set up your account. The link is single-use and expires.</p>
<p style="text-align: center;"><a class="cw-button" href="%s">Accept invitation</a></p>
<p>If you were not expecting this invitation, you can safely ignore this email.</p>`, orgName, inviteLink)
}

func welcomeContent(firstName string) string {
	return fmt.Sprintf(`<h1>Welcome to Causeway!</h1>
<p>Hi %s,</p>
<p>Your account is ready. Head to your dashboard to see the causes and listings you can support.</p>`, firstName)
}
