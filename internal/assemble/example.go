package assemble

// ExampleInput is a typical pasted group-chat message: two announcement
// blocks around three labelled records with varying label spellings.
const ExampleInput = `PERSONAL DATA OF COOPERATIVE OWNERS

NAME: John Doe
CO-OP NAME: Alpha Co-op
PHONE NO: 08012345678
BANK NAME: First Bank
ACCT NO: 1234567890
SEX: MALE

YOU JUST HAVE NOW TILL 3PM TOMORROW TO SEND YOUR DETAILS
PLZ DON'T SEND TO OTHER NUMBERS

CEO NAME: Jane Smith
CO-OP NAME: Beta Co-op
PHONE NO: 08087654321
BANK NAME: GTB
ACCT NO: 0987654321
SEX: FEMALE

NAME: Bob Johnson
COOP NAME: Alpha Co-op
PHONE: 08055555555
BANK: UBA
ACCOUNT NO: 5555555555
SEX: MALE`
