package mail

import "fmt"

// RegistrationOTPBody formats the verification email sent during signup.
func RegistrationOTPBody(name, code string, ttlMinutes int) (subject, body string) {
	subject = "Verify your AgriMandi account"
	body = fmt.Sprintf(
		"Hello %s,\n\nYour AgriMandi verification code is %s. It expires in %d minutes.\n\nIf you did not request this, you can ignore this email.\n",
		name, code, ttlMinutes,
	)
	return subject, body
}

// HubArrivalOTPBody formats the code sent to a farmer when a hub manager
// requests arrival confirmation.
func HubArrivalOTPBody(name, productName, code string, ttlMinutes int) (subject, body string) {
	subject = "Hub arrival confirmation code"
	body = fmt.Sprintf(
		"Hello %s,\n\nShare code %s with the hub manager to confirm delivery of %q. The code expires in %d minutes.\n",
		name, code, productName, ttlMinutes,
	)
	return subject, body
}

// OrderDeliveredBody notifies the customer their produce reached the hub.
func OrderDeliveredBody(name, productName string) (subject, body string) {
	subject = "Your order has arrived at the hub"
	body = fmt.Sprintf(
		"Hello %s,\n\n%q has been received at your nearest hub and is ready for pickup or final delivery.\n",
		name, productName,
	)
	return subject, body
}
