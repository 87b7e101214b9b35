package utils

import (
	"fmt"
	"log"
	"os"

	"github.com/wneessen/go-mail"
)

// SendPasswordResetEmail envoie le lien de réinitialisation de mot de passe
func SendPasswordResetEmail(to, resetLink string) error {
	msg := mail.NewMsg()

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@friperie.app"
	}
	if err := msg.From(from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject("Réinitialisation de votre mot de passe")
	msg.SetBodyString(mail.TypeTextHTML, passwordResetHTML(resetLink))

	client, err := mail.NewClient(os.Getenv("SMTP_HOST"),
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail de réinitialisation à", to)
	return client.DialAndSend(msg)
}

func passwordResetHTML(resetLink string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Réinitialisation du mot de passe</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Réinitialisation de votre mot de passe</h2>
		<p>Bonjour,</p>
		<p>Vous avez demandé la réinitialisation de votre mot de passe. Cliquez sur le lien ci-dessous pour en choisir un nouveau :</p>
		<p><a href="%s" style="display: inline-block; padding: 10px 20px; background-color: #4f46e5; color: white; border-radius: 5px; text-decoration: none;">Choisir un nouveau mot de passe</a></p>
		<p>Ce lien expire dans 1 heure. Si vous n'êtes pas à l'origine de cette demande, ignorez cet e-mail.</p>
	</div>
</body>
</html>`, resetLink)
}
