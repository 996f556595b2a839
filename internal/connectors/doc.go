// Package connectors provides implementations of the Connector interface
// for the document sources the intake engine pulls from. Each connector
// knows how to walk one upstream system (local directory, mailbox, cloud
// drive, issue tracker) and turn what it finds into candidate documents.
//
// Connectors are registered with the Factory at startup.
package connectors
