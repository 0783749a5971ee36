package ivr

import "fmt"

const (
	promptMessageWaiting = "You have a message waiting. Press 1 to hear it."
	promptRepresentative = "Press 2 to speak with a representative."
	promptPayment        = "Press 3 to make a payment."
	promptInvalidOption  = "Sorry, that is not a valid option."
	promptNoPayments     = "Phone payments are not available right now."

	promptMessageLeadIn = "Here is your message."
	promptPressAnyKey   = "Press any key to speak with a representative."

	promptUnavailable = "We're sorry, no one is available to take your call right now. Please try again later."
	promptNotAnswered = "Sorry, your call was not answered. Goodbye."

	promptConnecting    = "Connecting."
	promptNoResponse    = "No response received. Goodbye."
	promptCallCancelled = "Call cancelled. Goodbye."
	promptMessageRepeat = "Again, here is your message."
	promptThanksGoodbye = "Thank you. Goodbye."

	defaultCustomerName  = "the customer"
	defaultAnnouncedName = "a customer"

	noteDidNotConfirm = "did not press 1"
	noteNoForwarding  = "no forwarding number configured"
)

func promptGreeting(store string) string {
	return fmt.Sprintf("Thank you for calling %s.", store)
}

func promptWhisper(name string) string {
	return fmt.Sprintf("Call from %s. Press 1 to accept.", name)
}

func promptClickToCall(name string) string {
	return fmt.Sprintf("Press 1 to call %s.", name)
}

func promptConnectingTo(name string) string {
	return fmt.Sprintf("Connecting you to %s.", name)
}

func promptNotificationIntro(name, store string) string {
	if name == "" {
		return fmt.Sprintf("Hello. This is %s with a message for you.", store)
	}
	return fmt.Sprintf("Hello %s. This is %s with a message for you.", name, store)
}

func promptNotificationFallback(store string) string {
	return fmt.Sprintf("Hello, this is %s. Please call us back at your convenience. Goodbye.", store)
}
