// Command cinematch builds the hybrid recommendation model from local data and
// answers queries from the terminal.
//
//	cinematch recommend --movie "Inception" --user 10 --alpha 0.6
//	cinematch resolve --query "the matrx"
//	cinematch similar --id 27205 --k 5
package main
